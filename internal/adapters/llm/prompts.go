package llm

const segmentSystemPrompt = `You split meeting transcripts into distinct work topics.
Rules:
1. Find natural topic boundaries in the conversation.
2. Every topic must be a complete, coherent segment.
3. Drop segments unrelated to work such as greetings, goodbyes and small talk.
4. For every topic extract 5-7 important technical terms as keywords and a brief description of its core idea as mainConcept.
Return a JSON object of the form:
{"data": [{"text": "segment text", "wordCount": 300, "topic": "short label", "keywords": ["api", "database"], "mainConcept": "core idea"}]}
Return only the JSON object.`

const segmentUserPrompt = "Split this transcript into distinct topics and analyze each topic for key concepts.\nTranscript: "

const summarizeSystemPrompt = `You analyze what a project discussion adds to an existing ticket.
Given the ticket history and the new discussion, produce:
1. summary: a detailed description of what is new or changed
2. oneLiner: a concise one-line update
Return JSON with "summary" and "oneLiner" fields.
If the ticket is unrelated to the discussion, return null for both fields.
If the discussion adds nothing new, or existing comments already cover it, return null for both fields.`

const summarizeUserPrompt = "Analyze this context and identify new changes or updates:\n"
