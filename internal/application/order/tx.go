package order

import "context"

// TxManager 事务边界,由mysql.TxManager实现
// fn内通过ctx取得事务,返回error时整体回滚
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
