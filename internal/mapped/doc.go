// Package mapped opens one physical volume file for random reads.
//
// A File prefers a read-only memory mapping of its blob. When the blob cannot
// be mapped, mapping fails, or the environment's memory budget is exhausted,
// the File degrades to buffered reads through the blob's ReadAt.
//
// A File is shared; cursor state is not. Every reader calls Attach to get its
// own Cursor. In mapped mode a cursor returns views into the shared mapping;
// in buffered mode it reads into a scratch buffer it owns, sized to the
// volume's longest sequence plus two sentinel bytes.
package mapped
