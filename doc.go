// Package verso is the composition root of a versioned document store.
//
// A store is a directory of files whose every change is an authored revision.
// The default backend drives the git executable: each Save, Delete or Rename
// becomes exactly one commit, and reads go through git's object database so
// the working tree is never trusted.
//
// Features:
//
//   - **Optimistic concurrency**: Service.Modify commits only if the caller's
//     expected revision is still the latest, otherwise it returns a three-way
//     merge with conflict markers for the caller to resolve and resubmit.
//   - **History**: per-path revision logs with time ranges and limits.
//   - **Search**: literal, multi-pattern search over the current snapshot.
//   - **Watch**: a channel of create, modify and delete events for new
//     revisions, including commits made by other processes.
//   - **Extensible**: other backends plug in through core.Store.
//
// Usage:
//
//	svc, err := verso.New("./store",
//		verso.WithAutoInit(true),
//		verso.WithLogger(logger),
//	)
//
//	author := verso.Author{Name: "Ada", Email: "ada@example.com"}
//	err = svc.Create(ctx, "notes/hello.md", author, "first note", []byte("hi"))
package verso
