package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Sanitize 去除全部 HTML 标签，用于消息与通知正文
func Sanitize(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
