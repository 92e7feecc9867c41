//go:build unit

package treesitter_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
	"github.com/depscope/depscope/internal/infrastructure/repositories/treesitter"
)

func newRepository(t *testing.T) repositories.UsageRepository {
	t.Helper()
	repo, err := treesitter.NewTreeSitterUsageRepository()
	require.NoError(t, err)
	return repo
}

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func usagesByType(usages []entities.CodeUsage) map[string][]entities.CodeUsage {
	byType := make(map[string][]entities.CodeUsage)
	for _, usage := range usages {
		byType[usage.UsageType] = append(byType[usage.UsageType], usage)
	}
	return byType
}

func TestTreeSitterFindUsages(t *testing.T) {
	t.Parallel()

	t.Run("should find python imports and from-imports", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeSource(t, dir, "app.py", `import requests
from requests.adapters import HTTPAdapter

resp = requests.get("https://example.com")
`)
		repo := newRepository(t)

		// when
		usages, err := repo.FindUsages(context.Background(), dir, "requests")

		// then
		require.NoError(t, err)
		byType := usagesByType(usages)
		require.Len(t, byType["import"], 1)
		assert.Equal(t, "requests", byType["import"][0].Symbol)
		assert.Equal(t, 1, byType["import"][0].LineNumber)
		require.Len(t, byType["import_from"], 1)
		assert.Equal(t, "requests.adapters", byType["import_from"][0].Symbol)
	})

	t.Run("should track call sites of imported symbols", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeSource(t, dir, "client.py", `from requests import Session, get

s = Session()
body = get("https://example.com")
`)
		repo := newRepository(t)

		// when
		usages, err := repo.FindUsages(context.Background(), dir, "requests")

		// then
		require.NoError(t, err)
		byType := usagesByType(usages)
		require.Len(t, byType["call"], 2)
		symbols := []string{byType["call"][0].Symbol, byType["call"][1].Symbol}
		assert.ElementsMatch(t, []string{"requests.Session", "requests.get"}, symbols)
		assert.Equal(t, "s = Session()", byType["call"][0].CodeSnippet)
	})

	t.Run("should track base classes and decorators", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeSource(t, dir, "models.py", `from pydantic import BaseModel, validator

class User(BaseModel):
    name: str

    @validator("name")
    def check_name(cls, v):
        return v
`)
		repo := newRepository(t)

		// when
		usages, err := repo.FindUsages(context.Background(), dir, "pydantic")

		// then
		require.NoError(t, err)
		byType := usagesByType(usages)
		require.Len(t, byType["base_class"], 1)
		assert.Equal(t, "pydantic.BaseModel", byType["base_class"][0].Symbol)
		require.Len(t, byType["decorator"], 1)
		assert.Equal(t, "pydantic.validator", byType["decorator"][0].Symbol)
	})

	t.Run("should honor import aliases", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeSource(t, dir, "aliased.py", `from requests import Session as HTTPSession

s = HTTPSession()
`)
		repo := newRepository(t)

		// when
		usages, err := repo.FindUsages(context.Background(), dir, "requests")

		// then
		require.NoError(t, err)
		byType := usagesByType(usages)
		require.Len(t, byType["call"], 1)
		assert.Equal(t, "requests.HTTPSession", byType["call"][0].Symbol)
	})

	t.Run("should find ES imports and require calls", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeSource(t, dir, "server.js", `const express = require('express');
const helper = notRequire('express');
`)
		writeSource(t, dir, "routes.ts", `import express from "express";
`)
		repo := newRepository(t)

		// when
		usages, err := repo.FindUsages(context.Background(), dir, "express")

		// then
		require.NoError(t, err)
		require.Len(t, usages, 2, "only require() and the ES import count")
		for _, usage := range usages {
			assert.Equal(t, "import", usage.UsageType)
			assert.Equal(t, "express", usage.Symbol)
		}
	})

	t.Run("should match hyphenated dependency names against underscored imports", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeSource(t, dir, "conf.py", "import typing_extensions\n")
		repo := newRepository(t)

		// when
		usages, err := repo.FindUsages(context.Background(), dir, "typing-extensions")

		// then
		require.NoError(t, err)
		require.Len(t, usages, 1)
		assert.Equal(t, "typing_extensions", usages[0].Symbol)
	})

	t.Run("should skip vendored directories and other dependencies", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeSource(t, dir, "app.py", "import flask\n")
		writeSource(t, dir, "node_modules/pkg/index.js", `const requests = require('requests');`)
		repo := newRepository(t)

		// when
		usages, err := repo.FindUsages(context.Background(), dir, "requests")

		// then
		require.NoError(t, err)
		assert.Empty(t, usages)
	})
}
