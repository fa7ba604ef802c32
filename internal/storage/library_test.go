/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := OpenLibrary(context.Background(), filepath.Join(t.TempDir(), "lib", "library.sqlite"))
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestLibraryRoundTrip(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)
	want := sampleDocument()
	if err := lib.Put(ctx, "cover", want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := lib.Get(ctx, "cover")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("library round trip mismatch")
	}
	if v, err := lib.SchemaVersion(ctx); err != nil || v != librarySchemaVersion {
		t.Fatalf("schema version %d err %v", v, err)
	}
}

func TestLibraryUpsertListDelete(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)
	doc := sampleDocument()
	if err := lib.Put(ctx, "a", doc); err != nil {
		t.Fatalf("put a: %v", err)
	}
	doc.Panels = doc.Panels[:1]
	if err := lib.Put(ctx, "a", doc); err != nil {
		t.Fatalf("replace a: %v", err)
	}
	if err := lib.Put(ctx, "b", doc); err != nil {
		t.Fatalf("put b: %v", err)
	}
	list, err := lib.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %v", list, err)
	}
	for _, li := range list {
		if li.Panels != 1 {
			t.Fatalf("upsert should replace panel count: %+v", li)
		}
	}
	if err := lib.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := lib.Get(ctx, "a"); !errors.Is(err, ErrLayoutNotFound) {
		t.Fatalf("expected ErrLayoutNotFound, got %v", err)
	}
	if err := lib.Delete(ctx, "a"); !errors.Is(err, ErrLayoutNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if err := lib.Put(ctx, "  ", doc); err == nil {
		t.Fatalf("blank name accepted")
	}
}

func TestLibrarySearch(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)
	doc := sampleDocument()
	doc.Panels[0].Text = "dragon attack"
	if err := lib.Put(ctx, "dragons", doc); err != nil {
		t.Fatalf("put: %v", err)
	}
	doc.Panels[0].Text = "quiet village"
	doc.Panels[1].Text = ""
	if err := lib.Put(ctx, "village", doc); err != nil {
		t.Fatalf("put: %v", err)
	}
	res, err := lib.Search(ctx, "dragon", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].Name != "dragons" || res[0].Snippet == "" {
		t.Fatalf("search results: %+v", res)
	}
	// Updating the text must refresh the index.
	doc.Panels[0].Text = "dragon at the gate"
	if err := lib.Put(ctx, "village", doc); err != nil {
		t.Fatalf("put: %v", err)
	}
	res, _ = lib.Search(ctx, "dragon", 10)
	if len(res) != 2 {
		t.Fatalf("expected two matches after update, got %+v", res)
	}
}

func TestLibraryReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.sqlite")
	lib, err := OpenLibrary(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := lib.Put(ctx, "x", sampleDocument()); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = lib.Close()
	lib, err = OpenLibrary(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer lib.Close()
	if _, err := lib.Get(ctx, "x"); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
}
