package agent

const synthesisPrompt = `请根据下面的信息，为用户的问题给出全面而准确的回答。

用户问题: %s

搜索引擎结果:
%s

知识图谱结果:
%s

请综合分析以上两个来源，给出简洁明确的答案。两个来源的信息若有冲突，请指出并加以说明。
某个来源若没有相关信息，只使用另一个来源的信息即可。`

const queryOptimizerPrompt = `你是知识图谱查询优化专家。请参照下面的示例，把用户的原始问题改写成更适合知识图谱检索的表述。
示例：
原始查询：有哪些诗词提到了湖泊？
优化查询：有哪些诗词提到了湖泊？
原始查询：什么方志记载了湖的信息
优化查询：哪些方志记载了湖泊信息？
原始查询：方志里有湖的记录吗
优化查询：方志中记载了哪些湖泊？
请只输出优化后的查询，不要附加任何解释。
原始查询：%s
优化查询：`
