package utils

import "github.com/google/uuid"

func NewID() string { return uuid.NewString() }

// IsID 校验外部传入的 id 格式
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
