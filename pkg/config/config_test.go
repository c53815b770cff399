package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetenvFallsBackToDefault(t *testing.T) {
	t.Setenv("UNSET_KEY_XYZ", "")
	require.Equal(t, "fallback", getenv("UNSET_KEY_XYZ", "fallback"))

	t.Setenv("SET_KEY_XYZ", "actual")
	require.Equal(t, "actual", getenv("SET_KEY_XYZ", "fallback"))
}

func TestGetenvIntParsesOrFallsBack(t *testing.T) {
	t.Setenv("INT_KEY_XYZ", "")
	v, err := getenvInt("INT_KEY_XYZ", 42)
	require.NoError(t, err)
	require.Equal(t, 42, v)

	t.Setenv("INT_KEY_XYZ", "17")
	v, err = getenvInt("INT_KEY_XYZ", 42)
	require.NoError(t, err)
	require.Equal(t, 17, v)

	t.Setenv("INT_KEY_XYZ", "not-a-number")
	_, err = getenvInt("INT_KEY_XYZ", 42)
	require.Error(t, err)
}

func TestGetenvDurationParsesOrFallsBack(t *testing.T) {
	t.Setenv("DUR_KEY_XYZ", "")
	d, err := getenvDuration("DUR_KEY_XYZ", 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, d)

	t.Setenv("DUR_KEY_XYZ", "2m")
	d, err = getenvDuration("DUR_KEY_XYZ", 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, 2*time.Minute, d)
}

func TestGetenvCSVSplitsAndTrims(t *testing.T) {
	t.Setenv("CSV_KEY_XYZ", "")
	require.Nil(t, getenvCSV("CSV_KEY_XYZ"))

	t.Setenv("CSV_KEY_XYZ", "alice, bob ,, carol")
	require.Equal(t, []string{"alice", "bob", "carol"}, getenvCSV("CSV_KEY_XYZ"))
}

func TestDatabaseDSNRendersLibpqFormat(t *testing.T) {
	db := Database{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "recall", SSLMode: "disable"}
	require.Equal(t, "host=localhost port=5432 user=u password=p dbname=recall sslmode=disable", db.DSN())
}
