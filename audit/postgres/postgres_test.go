package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSNDefaultsSslModeToDisable(t *testing.T) {
	dsn := buildDSN(Config{User: "u", Password: "p", Host: "db", Port: 5432, DbName: "units"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=units sslmode=disable", dsn)
}

func TestBuildDSNHonoursExplicitSslMode(t *testing.T) {
	dsn := buildDSN(Config{Host: "db", Port: 5432, DbName: "units", SslMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")
}

func TestExponentsText(t *testing.T) {
	assert.Equal(t, "1000,-2000,0", exponentsText([]int32{1000, -2000, 0}))
	assert.Equal(t, "", exponentsText(nil))
}
