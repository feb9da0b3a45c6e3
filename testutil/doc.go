// Copyright 2026 AgentRouter Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 AgentRouter 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext
  - 存储辅助: NewTestDB / NewTestRepository 基于内存 SQLite，
    NewTestCache 基于 miniredis
  - 断言工具: DecodeJSON / MustJSON / AssertJSONEqual / AssertEventuallyTrue

# 子包

  - testutil/mocks: MockProcessor（主 Agent 委派入口）、MockMetrics、
    MockActivity，均支持 Builder 模式与错误注入
  - testutil/fixtures: 预置 Agent 定义、注册表与任务分类样例

# 使用示例

	repo := testutil.NewTestRepository(t)
	proc := mocks.NewMockProcessor().WithError(errors.New("boom"))
	reg := fixtures.NewRegistry(fixtures.FrontendAgent())
*/
package testutil
