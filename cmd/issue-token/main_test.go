package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"hours-ledger/internal/model"
	"hours-ledger/internal/service"

	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	o, err := parseFlags([]string{"-user", "carol", "-role", "manager", "-ttl", "5m"})
	require.NoError(t, err)
	require.Equal(t, "carol", o.UserID)
	require.Equal(t, "manager", o.Role)
	require.Equal(t, 5*time.Minute, o.TTL)
	require.Equal(t, "from-env", o.Secret)

	_, err = parseFlags([]string{"-ttl", "soon"})
	require.Error(t, err)
}

func TestIssue(t *testing.T) {
	var out bytes.Buffer
	err := issue(options{UserID: "alice", Role: "employee", ManagerID: "carol", TTL: time.Minute, Secret: "s"}, &out)
	require.NoError(t, err)

	claims, err := service.VerifyAccessToken("s", strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Equal(t, "alice", claims.UserID)
	require.Equal(t, model.RoleEmployee, claims.Role)
	require.Equal(t, "carol", *claims.ManagerID)

	require.Error(t, issue(options{UserID: "x", Role: "boss", Secret: "s", TTL: time.Minute}, &out))
	require.Error(t, issue(options{UserID: "x", Role: "admin", TTL: time.Minute}, &out))
}
