package services

// Prompt constants and fixed user-facing messages for the QA flow.

const (
	// EXTERNAL_QA_PROMPT is used when the knowledge base has no match. The
	// model first classifies whether the question is IT-related and only
	// answers when it is. Takes the question.
	EXTERNAL_QA_PROMPT = `Your task is to decide whether a question is related to IT technology, and to act on that decision.

1. **Analyze the question**: read the user's question carefully.
2. **Classify it**: does it belong to the IT domain (computer hardware and software, networking, operating systems, programming, and similar topics)?
3. **Act on the result**:
   * **If it IS an IT question**: act as a highly experienced IT support engineer and provide a detailed, accurate and easy-to-follow solution.
   * **If it is NOT an IT question**: reply with exactly the following sentence, with no additions or changes: "` + NonITRefusalMessage + `"

The user's question is: "%s"
Follow these rules strictly.`

	// INTERNAL_EXTRACTION_PROMPT is used when the knowledge base returned
	// matches. The model must reproduce the best-matching block verbatim
	// instead of generating. Takes the question and the context block.
	INTERNAL_EXTRACTION_PROMPT = `You are a precise retrieval-and-presentation assistant.
Your only task is to find, inside the reference material below, the single block most relevant to the user's question, and reproduce that block word for word.

The user's question is: "%s"

--- REFERENCE MATERIAL ---
%s
--- END OF REFERENCE MATERIAL ---

Follow these rules strictly:
1. **Locate the most relevant block**: find the paragraph or entry in the reference material that best matches the user's question.
2. **Copy it completely**: reproduce that entire block, start to finish, word for word. Do not summarize, rewrite or omit any detail.
3. **Keep the original formatting**: preserve the original line breaks and structure as far as possible.
4. **Say so when nothing matches**: if nothing in the reference material is relevant to the user's question, reply with exactly: "` + KBNotFoundMessage + `"`
)

const (
	// NonITRefusalMessage is returned verbatim for non-IT questions.
	NonITRefusalMessage = "Sorry, I only answer IT-related technical questions."

	// KBNotFoundMessage is returned verbatim when the retrieved context
	// contains nothing relevant.
	KBNotFoundMessage = "Nothing in the internal knowledge base covers this issue."

	// InternalAnswerBanner prefixes every answer extracted from the
	// internal knowledge base.
	InternalAnswerBanner = "✅ Found in the internal knowledge base:\n\n"

	// FeatureUnavailableMessage is returned when the AI or the knowledge
	// base is not configured. No provider call is attempted.
	FeatureUnavailableMessage = "❌ The AI assistant or the knowledge base is not configured. Check the server credentials and the startup logs."

	// EmptyQuestionMessage is returned for blank input.
	EmptyQuestionMessage = "Please enter an IT question."
)
