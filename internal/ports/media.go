package ports

// FileStore is the local media directory pair backing uploads and
// generated artifacts. Paths handed out are absolute; filenames are the
// bare names under the image or video directory.
type FileStore interface {
	ImageExists(filename string) bool
	ImagePath(filename string) string
	ImageURL(filename string) string
	VideoExists(filename string) bool
	VideoPath(filename string) string
	VideoURL(filename string) string
	WriteVideo(filename string, data []byte) error
	CopyVideo(srcFilename, dstFilename string) error
}

// AuditLogger is the per-publication structured audit trail. Entries are
// keyed by message id and platform tag; Data is serialized as JSON.
type AuditLogger interface {
	Info(messageID, platform, msg string, data any)
	Success(messageID, platform, msg string, data any)
	Warning(messageID, platform, msg string, data any)
	Error(messageID, platform, msg string, data any)
}
