package graphqa

const cypherGenerationPrompt = `Task: Generate a Cypher statement to query a graph database.
Instructions:
Use only the provided relationship types and properties in the schema.
Do not use any other relationship types or properties that are not provided.
Only write read queries. Never use CREATE, MERGE, SET, DELETE or REMOVE.
Return at most %d rows.

Schema:
%s
Examples:
# 鄱阳湖在哪些地方志中被提及？
MATCH (l:Lake {name: '鄱阳湖'})-[:MENTIONED_IN_GAZETTEER]->(g:Gazetteer) RETURN g.title
# 哪些诗歌写到了洞庭湖？
MATCH (l:Lake {name: '洞庭湖'})-[:MENTIONED_IN_POEM]->(p:Poem) RETURN p.title, p.author

Note: Do not include any explanations or apologies in your responses.
Do not respond to any questions that might ask anything else than for you to construct a Cypher statement.
Do not include any text except the generated Cypher statement.

The question is:
%s`

const answerPrompt = `You are an assistant that helps to form nice and human understandable answers.
The information part contains the provided information that you must use to construct an answer.
The provided information is authoritative, you must never doubt it or try to use your internal knowledge to correct it.
Make the answer sound as a response to the question. Do not mention that you based the result on the given information.
Answer in the language of the question.
If the provided information is empty, say that you don't know the answer.

Information:
%s
Question: %s
Helpful Answer:`
