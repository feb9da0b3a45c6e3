package fixtures

import "github.com/BaSui01/agentrouter/agent/analysis"

// TaskSample 一条带期望分类的任务描述
type TaskSample struct {
	Content  string
	Category analysis.Category
}

// TaskSamples 返回每个评分分类各一条典型任务
func TaskSamples() []TaskSample {
	return []TaskSample{
		{"build a responsive react component with tailwind css", analysis.CategoryFrontend},
		{"add a rest endpoint and middleware to the graphql server", analysis.CategoryBackend},
		{"write a sql migration that adds an index to the postgres table", analysis.CategoryDatabase},
		{"show typing presence in the live chat", analysis.CategoryChatUI},
		{"research and gather information to understand the data", analysis.CategoryResearch},
		{"add unit test coverage with mock and stub assertion", analysis.CategoryTesting},
		{"hash and salt every password with encryption", analysis.CategorySecurity},
		{"deploy the docker container to kubernetes with a ci pipeline", analysis.CategoryDeployment},
	}
}

// Chat 内容样例
const (
	FrontendRequest  = "please fix the react ui"
	DatabaseRequest  = "tune this postgres sql query"
	UnmatchedRequest = "hello there"
)
