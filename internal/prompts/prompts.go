// Package prompts holds the model-facing instruction templates. The content
// here is policy, not logic: the orchestrator treats these as opaque strings.
package prompts

import (
	"fmt"
	"strings"
)

// codeGenTemplate constrains the model to a single SQL SELECT against the
// master table. The worked example anchors quoting of exotic column names and
// case-insensitive matching.
const codeGenTemplate = `TASK: Write a SQL query to answer a user's question using a single table.
CONTEXT: The table is named %q and is queried with SQLite.
COLUMNS: %s

RULES:
1.  Output MUST be exactly one SQL SELECT statement (a WITH clause is allowed).
2.  Do NOT use INSERT, UPDATE, DELETE, DROP, CREATE, ALTER, ATTACH, or PRAGMA.
3.  Do NOT emit more than one statement.
4.  Wrap column names containing spaces or punctuation in double quotes.
5.  Perform case-insensitive text matching, e.g. LOWER(State) = LOWER('Maharashtra').
6.  Output only the SQL, with no commentary.

EXAMPLE_QUESTION: "What was the total RICE PRODUCTION in Maharashtra in 2010?"
EXAMPLE_SQL:
SELECT SUM("RICE PRODUCTION (1000 tons)") FROM df
WHERE LOWER(State) = LOWER('Maharashtra') AND Year = 2010`

// synthesisTemplate turns a data result into a natural-language answer with
// the mandatory source citation.
const synthesisTemplate = `TASK: Provide a clear, natural language answer to a user's question based *only* on the provided data.
CONTEXT: You are an analyst for an agricultural and climate data platform.
USER_QUESTION: %q
DATA_RESULT:
%s

RULES:
1.  Formulate a direct answer using *only* the data in DATA_RESULT.
2.  If DATA_RESULT is empty or null, state that the data is not available.
3.  End the response with the following mandatory citation:
    %q`

// explanationTemplate asks for a user-facing explanation of a failed query
const explanationTemplate = `TASK: Explain a query execution error to a user in simple terms.
USER_QUESTION: %q
FAILED_QUERY:
%s
ERROR_MESSAGE: %q

Provide a user-friendly explanation of what went wrong and suggest how to rephrase the question. Do not include stack traces or technical internals.`

// CodeGeneration builds the system instruction for the query-generation call.
// columnsJSON is the master table's column list rendered as a JSON array.
func CodeGeneration(tableName, columnsJSON string) string {
	return fmt.Sprintf(codeGenTemplate, tableName, columnsJSON)
}

// Synthesis builds the system instruction for the answer-synthesis call
func Synthesis(question, dataResult string, sources []string) string {
	return fmt.Sprintf(synthesisTemplate, question, dataResult, Citation(sources))
}

// Explanation builds the system instruction for the error-explanation call
func Explanation(question, failedQuery, execError string) string {
	return fmt.Sprintf(explanationTemplate, question, failedQuery, execError)
}

// Citation renders the fixed source citation appended to every answer
func Citation(sources []string) string {
	return fmt.Sprintf("[Sources: %s]", strings.Join(sources, ", "))
}
