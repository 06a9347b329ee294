package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicate 唯一键冲突（如同一次提醒重复写入）
var ErrDuplicate = errors.New("记录已存在")
