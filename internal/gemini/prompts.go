package gemini

// explainPrompt is the user turn sent with every explanation request.
// It expects the category, the input as typed and the computed result.
const explainPrompt = `Task type: %s
Input: %s
Result: %s

Explain how the result follows from the input. Keep it under 12 short steps. If the result is an error, explain what is wrong with the input and how to fix it.`
