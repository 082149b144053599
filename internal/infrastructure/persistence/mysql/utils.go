package mysql

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为MySQL唯一索引冲突(1062 Duplicate entry)
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// dateOnly 用于 DATE(column) = ? 条件
func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
