package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// FileOffer announces an incoming file transfer (spec.md §4.8). It is
// reliable: the sender retries until ACKed, then streams FILE_CHUNKs.
type FileOffer struct {
	From        types.UserID
	To          types.UserID
	Filename    string
	Filesize    int64
	Filetype    string
	FileID      types.MessageID
	Description string
	Timestamp   types.Timestamp
	Token       types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "FILE_OFFER",
		Scope:     types.ScopeFile,
		HasScope:  true,
		Schema:    fileOfferSchema,
		HelpShort: "offer a file to a peer",
	})
}

var fileOfferSchema = &schema.Schema{
	Type: "FILE_OFFER",
	Fields: map[string]schema.Field{
		"FROM":        {Type: schema.FieldUserID, Required: true},
		"TO":          {Type: schema.FieldUserID, Required: true},
		"FILENAME":    {Type: schema.FieldString, Required: true},
		"FILESIZE":    {Type: schema.FieldInt, Required: true},
		"FILETYPE":    {Type: schema.FieldString, Required: true},
		"FILEID":      {Type: schema.FieldMessageID, Required: true},
		"DESCRIPTION": {Type: schema.FieldString, Required: false},
		"TIMESTAMP":   {Type: schema.FieldTimestamp, Required: true},
		"TOKEN":       {Type: schema.FieldToken, Required: true},
	},
}

func (o *FileOffer) MessageType() string              { return "FILE_OFFER" }
func (o *FileOffer) BearerToken() (types.Token, bool)  { return o.Token, true }
func (o *FileOffer) MessageTimestamp() types.Timestamp { return o.Timestamp }
func (o *FileOffer) CorrelationID() types.MessageID    { return o.FileID }

func (o *FileOffer) Info(verbose bool) string {
	return o.From.String() + " offers file " + o.Filename + " (" + o.Filetype + ")"
}

func (o *FileOffer) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "FILE_OFFER")
	f.Set("FROM", o.From.String())
	f.Set("TO", o.To.String())
	f.Set("FILENAME", o.Filename)
	f.Set("FILESIZE", itoa64(o.Filesize))
	f.Set("FILETYPE", o.Filetype)
	f.Set("FILEID", string(o.FileID))
	f.Set("DESCRIPTION", o.Description)
	f.Set("TIMESTAMP", o.Timestamp.String())
	f.Set("TOKEN", o.Token.String())
	return f
}

func parseFileOffer(f *wire.Frame) (*FileOffer, error) {
	from, err := parseUserIDField(f, "FROM")
	if err != nil {
		return nil, err
	}
	to, err := parseUserIDField(f, "TO")
	if err != nil {
		return nil, err
	}
	filename, ok := f.Get("FILENAME")
	if !ok {
		return nil, errMissing("FILENAME")
	}
	filesize, err := parseInt64Field(f, "FILESIZE")
	if err != nil {
		return nil, err
	}
	filetype, ok := f.Get("FILETYPE")
	if !ok {
		return nil, errMissing("FILETYPE")
	}
	fileID, err := parseMessageIDField(f, "FILEID")
	if err != nil {
		return nil, err
	}
	ts, err := parseTimestampField(f, "TIMESTAMP")
	if err != nil {
		return nil, err
	}
	tok, err := parseTokenField(f, "TOKEN")
	if err != nil {
		return nil, err
	}
	return &FileOffer{
		From: from, To: to, Filename: filename, Filesize: filesize, Filetype: filetype,
		FileID: fileID, Description: optionalField(f, "DESCRIPTION"), Timestamp: ts, Token: tok,
	}, nil
}

// SendFileOffer transmits a reliable FILE_OFFER; the caller streams
// FILE_CHUNKs (via SendFileChunks) once the returned FileOffer is ACKed
// by the transport's reliable-send loop.
func SendFileOffer(ctx *Context, to types.UserID, filename, filetype, description string, filesize int64, validFor types.TTL) (*FileOffer, error) {
	now := types.Now()
	fileID := types.GenerateMessageID()
	o := &FileOffer{
		From: ctx.Self, To: to, Filename: filename, Filesize: filesize, Filetype: filetype,
		FileID: fileID, Description: description, Timestamp: now,
		Token: types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeFile},
	}
	if err := ctx.Send.SendReliable(to.IP, o.ToFrame(), types.MessageID(fileID)); err != nil {
		return nil, err
	}
	ctx.State.AddRecentMessageSent(o)
	return o, nil
}

// ReceiveFileOffer auto-ACKs the sender then registers a pending
// transfer keyed by FILEID.
func ReceiveFileOffer(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	o, err := parseFileOffer(f)
	if err != nil {
		return nil, err
	}
	if err := o.Token.Validate(o.From, types.ScopeFile); err != nil {
		return nil, err
	}
	if !o.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}

	ctx.State.AddPeer(o.From)
	if err := SendAck(ctx, o.From, o.FileID, "OK"); err != nil {
		return o, err
	}
	ctx.Files.AddPendingTransfer(string(o.FileID), o.Filename, o.Filetype, o.Filesize, 0)
	ctx.State.AddRecentMessageReceived(o)
	return o, nil
}
