package repomanager

import (
	"context"
	"database/sql"

	"github.com/ritvika/paintshop/internal/dbx"
	"github.com/ritvika/paintshop/internal/repositories/carts"
	"github.com/ritvika/paintshop/internal/repositories/orders"
	"github.com/ritvika/paintshop/internal/repositories/products"
	"github.com/ritvika/paintshop/internal/repositories/refreshtokens"
	"github.com/ritvika/paintshop/internal/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so a
// service can run the same repository code against *sql.DB or inside a
// transaction via dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Products(db dbx.DBTX) products.Repository
	Carts(db dbx.DBTX) carts.Repository
	Orders(db dbx.DBTX) orders.Repository
}
