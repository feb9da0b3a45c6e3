// 版权所有 2024 AgentRouter Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 skills 提供基于技能标签的请求匹配能力，为路由层挑选最合适的 Agent。

# 概述

skills 对自由文本请求与候选 Agent 的技能标签做词法比对：技能标签以
子串形式出现在请求中记 1.0 分，仅命中同义词表记 0.5 分，最终得分为
命中分数除以技能数并截断到 1.0。匹配器无可变状态，可被任意并发调用。

# 核心接口

  - Candidate：声明技能标签的任意对象
  - Matcher：匹配器，提供 CalculateSkillMatch / HasSynonymMatch / FindBestAgent
  - FindBest：FindBestAgent 的泛型版本，保留调用方的具体类型

# 主要能力

  - 同义词补偿：按空白切词并清洗后与静态同义词表逐词精确比较
  - 平分处理：严格大于比较，得分相同时保留先出现的候选
  - CountMatches：主 Agent 使用的整数命中计数，不含同义词与归一化

# 已知行为

匹配采用子串语义而非整词语义，例如 "api" 会命中 "rapid"。
*/
package skills
