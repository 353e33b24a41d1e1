package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/pkg/vfs"
)

// Mlst handles MLST: a machine-readable single-entry listing. The rendered
// fact set is whatever OPTS MLST negotiated for this session.
func Mlst(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	target := req.Argument
	obj, err := sess.View().GetFileObject(target)
	if err != nil || !obj.DoesExist() {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "MLST", target)
	}

	listing := formatMLSTEntry(obj, sess.MLSTFacts())
	return sink.Send(ftp.CodeFileActionOkay, "MLST", listing)
}

// formatMLSTEntry renders "Fact=value;...; /path" with only the negotiated
// facts present.
func formatMLSTEntry(obj vfs.FileObject, facts []string) string {
	var b strings.Builder
	for _, fact := range facts {
		switch strings.ToLower(fact) {
		case "size":
			b.WriteString("Size=")
			b.WriteString(strconv.FormatInt(obj.Size(), 10))
			b.WriteString(";")
		case "modify":
			b.WriteString("Modify=")
			b.WriteString(ftp.FormatFTPTimestamp(obj.LastModified()))
			b.WriteString(";")
		case "type":
			if obj.IsDirectory() {
				b.WriteString("Type=dir;")
			} else {
				b.WriteString("Type=file;")
			}
		case "perm":
			b.WriteString("Perm=")
			if obj.HasReadPermission() {
				b.WriteString("r")
			}
			if obj.HasWritePermission() {
				b.WriteString("w")
			}
			b.WriteString(";")
		}
	}
	b.WriteString(" ")
	b.WriteString(obj.FullName())
	return b.String()
}
