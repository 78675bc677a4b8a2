package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// FileReceived is an informational confirmation that a transfer
// completed (spec.md §4.8).
type FileReceived struct {
	From      types.UserID
	To        types.UserID
	FileID    types.MessageID
	Status    string
	Timestamp types.Timestamp
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "FILE_RECEIVED",
		Schema:    fileReceivedSchema,
		Hidden:    true,
		HelpShort: "confirm a file transfer completed",
	})
}

var fileReceivedSchema = &schema.Schema{
	Type: "FILE_RECEIVED",
	Fields: map[string]schema.Field{
		"FROM":      {Type: schema.FieldUserID, Required: true},
		"TO":        {Type: schema.FieldUserID, Required: true},
		"FILEID":    {Type: schema.FieldMessageID, Required: true},
		"STATUS":    {Type: schema.FieldString, Required: true},
		"TIMESTAMP": {Type: schema.FieldTimestamp, Required: true},
	},
}

func (r *FileReceived) MessageType() string              { return "FILE_RECEIVED" }
func (r *FileReceived) BearerToken() (types.Token, bool)  { return types.Token{}, false }
func (r *FileReceived) MessageTimestamp() types.Timestamp { return r.Timestamp }
func (r *FileReceived) CorrelationID() types.MessageID    { return r.FileID }

func (r *FileReceived) Info(verbose bool) string {
	return r.From.String() + " received file transfer " + string(r.FileID) + ": " + r.Status
}

func (r *FileReceived) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "FILE_RECEIVED")
	f.Set("FROM", r.From.String())
	f.Set("TO", r.To.String())
	f.Set("FILEID", string(r.FileID))
	f.Set("STATUS", r.Status)
	f.Set("TIMESTAMP", r.Timestamp.String())
	return f
}

func parseFileReceived(f *wire.Frame) (*FileReceived, error) {
	from, err := parseUserIDField(f, "FROM")
	if err != nil {
		return nil, err
	}
	to, err := parseUserIDField(f, "TO")
	if err != nil {
		return nil, err
	}
	fileID, err := parseMessageIDField(f, "FILEID")
	if err != nil {
		return nil, err
	}
	status, ok := f.Get("STATUS")
	if !ok {
		return nil, errMissing("STATUS")
	}
	ts, err := parseTimestampField(f, "TIMESTAMP")
	if err != nil {
		return nil, err
	}
	return &FileReceived{From: from, To: to, FileID: fileID, Status: status, Timestamp: ts}, nil
}

// ReceiveFileReceived records the confirmation for display; it carries
// no local side effect beyond recent-message logging.
func ReceiveFileReceived(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	r, err := parseFileReceived(f)
	if err != nil {
		return nil, err
	}
	if !r.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}
	ctx.State.AddRecentMessageReceived(r)
	return r, nil
}
