package crisis

import "strings"

// Keywords 自伤/自杀相关的中英文关键词。
var Keywords = []string{
	"自杀",
	"不想活了",
	"结束生命",
	"kill myself",
	"suicide",
	"die",
}

// Detect 判断文本是否包含任一危机关键词（忽略大小写，子串匹配）。
func Detect(text string) bool {
	_, ok := Match(text)
	return ok
}

// Match returns the first keyword found in text.
func Match(text string) (string, bool) {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return "", false
	}
	for _, keyword := range Keywords {
		if strings.Contains(normalized, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}
