package surrealdb

import (
	"context"
	"testing"

	surreal "github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/extrato/internal/common"
	tcommon "github.com/bobmcallan/extrato/tests/common"
)

// testDB returns a connection to the shared SurrealDB container, using a
// unique database per test for isolation.
func testDB(t *testing.T) *surreal.DB {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	db, err := surreal.New(sc.Address())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": "root",
		"pass": "root",
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	if err := db.Use(ctx, "extrato_test", tcommon.UniqueDatabase(t, "t")); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	t.Cleanup(func() {
		db.Close(context.Background())
	})

	return db
}

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
