package llm

import (
	"errors"
	"strings"
)

const summaryPrompt = "You summarize news articles. Reply with a neutral two to three sentence summary " +
	"of the article the user sends, in the article's language, without any preamble."

var errEmptyCompletion = errors.New("model returned an empty completion")

func maxTokens(n int) int64 {
	if n <= 0 {
		return 150
	}
	return int64(n)
}

func baseURL(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	return strings.TrimRight(endpoint, "/") + "/"
}
