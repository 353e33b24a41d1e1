package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborfs/harborftp/internal/logger"
	"github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/pkg/user"
)

// Site handles SITE and routes its sub-commands. DESCUSER and STAT are
// administrative: the admin check runs before anything else, and a
// non-admin caller is refused without a single store lookup.
func Site(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	if !req.HasArgument() {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "SITE", "")
	}

	sub := req.Argument
	rest := ""
	if i := strings.IndexByte(sub, ' '); i >= 0 {
		sub, rest = sub[:i], strings.TrimSpace(sub[i+1:])
	}

	switch strings.ToUpper(sub) {
	case "DESCUSER":
		return siteDescUser(ctx, sctx, rest, sess, sink)
	case "STAT":
		return siteStat(ctx, sctx, sess, sink)
	case "HELP":
		return sink.Send(ftp.CodeCommandOkay, "SITE", "DESCUSER HELP STAT")
	default:
		return sink.Send(ftp.CodeCommandNotImpl, "SITE", sub)
	}
}

func isAdminSession(ctx context.Context, sctx *ftp.ServerContext, sess *ftp.Session) bool {
	admin, err := sctx.Users.IsAdmin(ctx, sess.User().Name)
	if err != nil {
		logger.Warn("admin check failed for session %s: %v", sess.ID(), err)
		return false
	}
	return admin
}

// siteDescUser renders the fixed-format description of one user account.
func siteDescUser(ctx context.Context, sctx *ftp.ServerContext, argument string, sess *ftp.Session, sink ftp.ReplySink) error {
	if !isAdminSession(ctx, sctx, sess) {
		return sink.Send(ftp.CodeNotLoggedIn, "SITE", "")
	}

	if argument == "" {
		return sink.Send(ftp.CodeBadSequence, "SITE", "DESCUSER")
	}

	target, err := sctx.Users.GetByName(ctx, argument)
	if err != nil || target == nil {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "SITE", argument)
	}

	writePerm := target.Authorize(user.NewWriteRequest()) != nil

	uploadRate, downloadRate := 0, 0
	if res := target.Authorize(&user.TransferRateRequest{}); res != nil {
		if rate, ok := res.(*user.TransferRateRequest); ok {
			uploadRate = rate.MaxUploadRate
			downloadRate = rate.MaxDownloadRate
		}
	}

	report := strings.Join([]string{
		"",
		fmt.Sprintf("userid          : %s", target.Name),
		"userpassword    : ********",
		fmt.Sprintf("homedirectory   : %s", target.HomeDir),
		fmt.Sprintf("writepermission : %t", writePerm),
		fmt.Sprintf("enableflag      : %t", target.Enabled),
		fmt.Sprintf("idletime        : %d", int(target.MaxIdleTime.Seconds())),
		fmt.Sprintf("uploadrate      : %d", uploadRate),
		fmt.Sprintf("downloadrate    : %d", downloadRate),
		"",
	}, "\n")

	return sink.Send(ftp.CodeCommandOkay, "SITE", report)
}

// siteStat renders the process-wide connection and login statistics.
func siteStat(ctx context.Context, sctx *ftp.ServerContext, sess *ftp.Session, sink ftp.ReplySink) error {
	if !isAdminSession(ctx, sctx, sess) {
		return sink.Send(ftp.CodeNotLoggedIn, "SITE", "")
	}

	st := sctx.Stats
	report := strings.Join([]string{
		"",
		fmt.Sprintf("connection count         : %d", st.CurrentConnections()),
		fmt.Sprintf("total connection count   : %d", st.TotalConnections()),
		fmt.Sprintf("current login count      : %d", st.CurrentLogins()),
		fmt.Sprintf("total login count        : %d", st.TotalLogins()),
		fmt.Sprintf("current anonymous logins : %d", st.CurrentAnonymousLogins()),
		fmt.Sprintf("total anonymous logins   : %d", st.TotalAnonymousLogins()),
		fmt.Sprintf("total failed logins      : %d", st.TotalFailedLogins()),
		"",
	}, "\n")

	return sink.Send(ftp.CodeCommandOkay, "SITE", report)
}
