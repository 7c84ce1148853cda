package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ownerSetting is the statement setting that carries the acting user id.
const ownerSetting = "rowpolicy:owner"

// ErrNoOwner is returned when a bound store is used without a user id.
var ErrNoOwner = errors.New("repo: row policy requires an owner")

// RegisterOwnerPolicy installs callbacks that narrow every UPDATE and DELETE
// issued through an owner-bound handle (see BindOwner) to rows whose user_id
// matches the bound owner. Models without a user_id column are left alone.
//
// The callbacks run before GORM builds the statement, so the extra predicate
// is ANDed with whatever the caller wrote.
func RegisterOwnerPolicy(db *gorm.DB) error {
	if err := db.Callback().Delete().Before("gorm:delete").Register("rowpolicy:delete", scopeToOwner); err != nil {
		return err
	}
	return db.Callback().Update().Before("gorm:update").Register("rowpolicy:update", scopeToOwner)
}

// BindOwner returns a handle whose writes the row policy restricts to rows
// owned by userID. Reads are unaffected.
func BindOwner(db *gorm.DB, userID string) *gorm.DB {
	return db.Set(ownerSetting, userID).Session(&gorm.Session{})
}

// OwnerOf reports the owner a handle is bound to, if any.
func OwnerOf(db *gorm.DB) (string, bool) {
	v, ok := db.Get(ownerSetting)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func scopeToOwner(tx *gorm.DB) {
	owner, bound := OwnerOf(tx)
	if !bound || tx.Error != nil {
		return
	}
	if tx.Statement.Schema == nil || tx.Statement.Schema.LookUpField("user_id") == nil {
		return
	}
	if owner == "" {
		_ = tx.AddError(ErrNoOwner)
		return
	}
	tx.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "user_id"}, Value: owner},
	}})
}

// DeleteOwned hard-deletes the row of type T with the given id when it is
// owned by userID, and reports how many rows went away. Zero means the row
// was missing or belongs to someone else; callers cannot tell which.
func DeleteOwned[T any](ctx context.Context, db *gorm.DB, id, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(new(T))
	return res.RowsAffected, res.Error
}
