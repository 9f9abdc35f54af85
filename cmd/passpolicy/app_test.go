package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/passpolicy/pkg/password"
)

type testEnv struct {
	config   string
	textfile string
	denylist string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		config:   filepath.Join(dir, "config.yaml"),
		textfile: filepath.Join(dir, "passpolicy.prom"),
		denylist: filepath.Join(dir, "denylist.txt"),
	}
	require.NoError(t, os.WriteFile(env.denylist, []byte("# org specific\nZebra!Lamp42x\n"), 0o600))

	cfg := strings.Join([]string{
		"log:",
		"  level: error",
		"policy:",
		"  generate_length: 20",
		"  denylist_files:",
		"    - " + env.denylist,
		"hash:",
		"  bcrypt_cost: 4",
		"metrics:",
		"  textfile: " + env.textfile,
	}, "\n")
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o600))
	return env
}

func runCLI(t *testing.T, env testEnv, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-config", env.config}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestEvaluateText(t *testing.T) {
	env := newTestEnv(t)

	code, out, _ := runCLI(t, env, "Tr0ub4dor&Xy\n", "evaluate")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "strength: strong (4/4)")
	assert.Contains(t, out, "valid: true")
	assert.Contains(t, out, "[x] At least 8 characters")
}

func TestEvaluateJSONUsesExtraDenylist(t *testing.T) {
	env := newTestEnv(t)

	code, out, _ := runCLI(t, env, "Zebra!Lamp42x", "evaluate", "-json", "-estimate")
	require.Equal(t, 0, code)

	var got struct {
		IsValid      bool                   `json:"is_valid"`
		Errors       []string               `json:"errors"`
		Label        string                 `json:"label"`
		Requirements []password.Requirement `json:"requirements"`
		Estimate     *password.Estimate     `json:"estimate"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.IsValid)
	assert.Equal(t, []string{password.MsgTooCommon}, got.Errors)
	assert.Len(t, got.Requirements, 8)
	assert.NotNil(t, got.Estimate)
}

func TestGenerate(t *testing.T) {
	env := newTestEnv(t)

	code, out, _ := runCLI(t, env, "", "generate", "-count", "3")
	require.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for _, pw := range lines {
		assert.Len(t, pw, 20)
		assert.True(t, password.Evaluate(pw).IsValid)
	}

	code, out, _ = runCLI(t, env, "", "generate", "-length", "2")
	require.Equal(t, 0, code)
	assert.Len(t, strings.TrimSpace(out), password.MinGenerateLength)
}

func TestHash(t *testing.T) {
	env := newTestEnv(t)

	code, out, _ := runCLI(t, env, "Tr0ub4dor&Xy\n", "hash")
	require.Equal(t, 0, code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("Tr0ub4dor&Xy")))

	code, out, _ = runCLI(t, env, "password\n", "hash")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
}

func TestAuditWritesReportAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	list := filepath.Join(t.TempDir(), "passwords.txt")
	require.NoError(t, os.WriteFile(list, []byte("Tr0ub4dor&Xy\nqwerty\n"), 0o600))

	code, out, _ := runCLI(t, env, "", "audit", list)
	require.Equal(t, 0, code)

	var report struct {
		Total int `json:"total"`
		Valid int `json:"valid"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Valid)

	metrics, err := os.ReadFile(env.textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "passpolicy_denylist_extra_entries 1")
	assert.Contains(t, string(metrics), `passpolicy_evaluations_total{score="4",valid="true"} 1`)
}

func TestCheckForms(t *testing.T) {
	env := newTestEnv(t)

	code, out, _ := runCLI(t, env,
		`{"email":"ada@example.com","username":"ada","password":"Tr0ub4dor&Xy","confirm_password":"Tr0ub4dor&Xy"}`,
		"check", "register")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"valid":true}`, out)

	code, out, _ = runCLI(t, env,
		`{"email":"ada@example.com","username":"ada","password":"Zebra!Lamp42x","confirm_password":"Zebra!Lamp42"}`,
		"check", "register")
	assert.Equal(t, 1, code)

	var got struct {
		Valid  bool `json:"valid"`
		Errors []struct {
			Field   string   `json:"field"`
			Details []string `json:"details"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Valid)
	require.Len(t, got.Errors, 2)
	assert.Equal(t, "password", got.Errors[0].Field)
	assert.Contains(t, got.Errors[0].Details, password.MsgTooCommon)
	assert.Equal(t, "confirm_password", got.Errors[1].Field)

	code, out, _ = runCLI(t, env,
		`{"current_password":"Tr0ub4dor&Xy","new_password":"Tr0ub4dor&Xy","confirm_password":"Tr0ub4dor&Xy"}`,
		"check", "change-password")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, `"new_password"`)

	code, _, stderr := runCLI(t, env, `{"pasword":"x"}`, "check", "register")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to decode register form")

	code, _, _ = runCLI(t, env, "{}", "check", "login")
	assert.Equal(t, 2, code)
}

func TestUsageErrors(t *testing.T) {
	env := newTestEnv(t)

	code, _, stderr := runCLI(t, env, "", "explode")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "explode"`)

	code, _, _ = runCLI(t, env, "", "audit")
	assert.Equal(t, 2, code)

	var stdout, errOut bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, strings.NewReader(""), &stdout, &errOut))
	assert.Contains(t, errOut.String(), "usage: passpolicy")
}

func TestMissingDenylistFileFails(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Remove(env.denylist))

	code, _, stderr := runCLI(t, env, "", "generate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to load denylist")
}
