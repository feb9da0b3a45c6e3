// Package activity tracks delegations made by the main agent.
//
// Each delegation becomes an Entry in a capped log, globally and per agent,
// and bumps a processed counter. RedisStore keeps this in Redis through
// internal/cache so several replicas share one view. MemoryStore is used
// when Redis is not configured.
package activity
