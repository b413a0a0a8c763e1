// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds credential material outside the Go heap.
//
// A [Buffer] is an anonymous mmap region locked into RAM (mlock) and
// excluded from core dumps (MADV_DONTDUMP). Close zeroes, unlocks and
// unmaps it. The gateway keeps its four OAuth secrets and the optional
// age identity in Buffers and converts them to strings only at the
// request-signing boundary.
package secret
