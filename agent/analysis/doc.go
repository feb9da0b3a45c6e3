// 版权所有 2024 AgentRouter Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 analysis 提供任务描述的分类、复杂度评估与耗时预估。

# 概述

Analyzer 将自由文本与八个固定类别的关键词表逐一做子串比对，
命中数除以该类别关键词总数得到类别分数，取最高分类别；分数相同
时按声明顺序（frontend、backend、database、chat_ui、research、
testing、security、deployment）取先声明者。不同类别关键词数量不同，
分数存在结构性偏差，该偏差按现状保留。

# 复杂度规则

  - 词数少于 10：low
  - 技术术语密度大于 0.15 或词数大于 50：high
  - 其余：medium

技术术语指驼峰/帕斯卡命名的标识符，以及包含 / _ - 的词元。

# 主要能力

  - AnalyzeTask：输出类别、置信度、复杂度、命中关键词与耗时预估
  - CategorizeSkill：为技能目录将单个技能标签归入粗粒度分组
*/
package analysis
