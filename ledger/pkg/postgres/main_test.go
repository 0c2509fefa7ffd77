package postgres_test

import (
	"context"
	"os"
	"testing"

	fftesting "github.com/malbeclabs/fitfreak/utils/pkg/testing"
)

var testDB *fftesting.PostgresDB

func TestMain(m *testing.M) {
	log := fftesting.NewLogger()

	var err error
	testDB, err = fftesting.NewPostgresDB(context.Background(), log, nil)
	if err != nil {
		log.Error("failed to start PostgreSQL container", "error", err)
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}
