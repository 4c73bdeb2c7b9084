// Package analyzer holds the X-ray prompt material and the chat service.
package analyzer

import "strings"

// System instruction for the deep-analysis persona.
const XraySystem = "你是 **深层学术解析员**，一名拥有极高结构化思维的\"审稿人\"。\n" +
	"你的任务不是\"总结\"论文，而是\"解构\"论文。穿透学术黑话的迷雾，还原作者最底层的逻辑模型。"

var langNames = map[string]string{
	"en": "English",
	"ja": "日本語",
	"zh": "中文",
}

// reportPreference is the order chat context picks a finished analysis from.
var reportPreference = []string{"zh", "en", "ja"}

var xrayPromptTemplate = "" +
	"请分析以下学术论文。\n\n" +

	"## 执行认知提取算法\n\n" +

	"### 去噪\n" +
	"- 忽略背景介绍、客套话和通用的已知知识\n" +
	"- 跳过冗长的 Related Work（除非有关键对比）\n" +
	"- 过滤掉\"为了发表而写\"的填充内容\n\n" +

	"### 提取\n" +
	"- 锁定论文的核心贡献（Delta）\n" +
	"- 识别作者的\"灵光一闪\"时刻\n" +
	"- 找出决定成败的 1-2 个关键操作\n\n" +

	"### 批判\n" +
	"- 寻找逻辑漏洞或边界条件\n" +
	"- 识别隐形假设\n" +
	"- 标记未解决的问题\n\n" +

	"## 输出格式\n\n" +

	"请严格按照以下 markdown 模板输出分析报告：\n\n" +

	"# xray-{简短标题}\n\n" +

	"**Authors**: {作者}\n\n" +

	"## NAPKIN FORMULA\n\n" +

	"```\n" +
	"+----------------------------------------------------------+\n" +
	"|                                                          |\n" +
	"|   {餐巾纸公式}                                          |\n" +
	"|                                                          |\n" +
	"+----------------------------------------------------------+\n" +
	"```\n\n" +

	"{一句话解释公式含义}\n\n" +

	"## PROBLEM\n\n" +

	"**痛点定义**: {一句话定义问题}\n\n" +

	"**前人困境**: {为什么之前解决不了}\n\n" +

	"## INSIGHT\n\n" +

	"**核心直觉**: {作者的灵光一闪，用最直白的语言}\n\n" +

	"**关键步骤**:\n" +
	"1. {神来之笔1}\n" +
	"2. {神来之笔2}\n\n" +

	"## DELTA\n\n" +

	"**vs SOTA**: {相比当前最佳的具体提升}\n\n" +

	"**新拼图**: {为人类知识库增加了什么}\n\n" +

	"## CRITIQUE\n\n" +

	"**隐形假设**:\n" +
	"- {假设1}\n" +
	"- {假设2}\n\n" +

	"**未解之谜**:\n" +
	"- {遗留问题1}\n" +
	"- {遗留问题2}\n\n" +

	"## LOGIC FLOW\n\n" +

	"```\n" +
	"{纯 ASCII 逻辑结构图: 问题 --> 洞见 --> 方法 --> 结果}\n" +
	"```\n\n" +

	"## NAPKIN SKETCH\n\n" +

	"```\n" +
	"{餐巾纸图: 用 ASCII 绘制核心概念}\n" +
	"```\n\n" +

	"## 输出质量标准\n\n" +

	"- **高密度**: 使用列表和关键词，不写长段落\n" +
	"- **直白**: 用最简单的语言解释复杂概念\n" +
	"- **批判**: 必须指出至少一个隐形假设或未解问题\n" +
	"- **ASCII Art**: 仅用纯 ASCII 基础符号（+, -, |, >, <, /, \\, *, =, .），不用 Unicode\n" +
	"- **餐巾纸图/公式**: 必须一眼能懂\n\n" +

	"## 语言要求\n\n" +

	"请使用{lang_name}输出所有分析内容。\n\n" +

	"## 论文内容\n\n" +

	"<paper>\n" +
	"{paper_text}\n" +
	"</paper>"

func LangName(lang string) string {
	if name, ok := langNames[lang]; ok {
		return name
	}
	return "English"
}

func BuildAnalysisPrompt(paperText, lang string) string {
	return strings.NewReplacer(
		"{lang_name}", LangName(lang),
		"{paper_text}", paperText,
	).Replace(xrayPromptTemplate)
}
