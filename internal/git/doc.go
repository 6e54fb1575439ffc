// Package git synchronizes external repositories to pinned revisions.
//
// A Synchronizer brings a local working copy to the commit named by a tag,
// branch or hash: it clones when the path is absent, otherwise it fetches
// branches and tags with forced refspecs, then force-checks-out the resolved
// commit on a detached HEAD. It never pulls or merges, so a working copy can
// move freely between unrelated revisions.
//
// Two equivalent backends exist: NativeClient (go-git) and CLIClient (the git
// command line). Every failure is reported as a *SyncError carrying the remote,
// path, revision and a coarse Kind; nothing is retried here.
package git
