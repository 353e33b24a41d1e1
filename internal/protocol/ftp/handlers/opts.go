package handlers

import (
	"context"
	"strings"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// supportedMLSTFacts is the fact vocabulary OPTS MLST may negotiate.
var supportedMLSTFacts = map[string]string{
	"size":   "Size",
	"modify": "Modify",
	"type":   "Type",
	"perm":   "Perm",
}

// Opts handles OPTS. Only the MLST option is supported: it installs the
// fact set later MLST commands render. Unsupported facts are silently
// dropped, matching the negotiation contract where the reply tells the
// client what was actually accepted.
func Opts(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	if !req.HasArgument() {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "OPTS", "")
	}

	option := req.Argument
	value := ""
	if i := strings.IndexByte(option, ' '); i >= 0 {
		option, value = option[:i], strings.TrimSpace(option[i+1:])
	}

	if !strings.EqualFold(option, "MLST") {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "OPTS", option)
	}

	var accepted []string
	for _, fact := range strings.Split(value, ";") {
		fact = strings.TrimSpace(fact)
		if fact == "" {
			continue
		}
		if canonical, ok := supportedMLSTFacts[strings.ToLower(fact)]; ok {
			accepted = append(accepted, canonical)
		}
	}

	sess.SetMLSTFacts(accepted)
	return sink.Send(ftp.CodeCommandOkay, "OPTS", "MLST OPTS "+strings.Join(accepted, ";"))
}
