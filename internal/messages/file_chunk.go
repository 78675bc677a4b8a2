package messages

import (
	"encoding/base64"

	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// FileChunk carries one base64-encoded slice of a file transfer
// (spec.md §4.8). Ordering across chunks is explicit via ChunkIndex;
// UDP delivery order is not relied upon.
type FileChunk struct {
	From        types.UserID
	To          types.UserID
	FileID      types.MessageID
	ChunkIndex  int
	TotalChunks int
	ChunkSize   int
	Token       types.Token
	Data        string // base64
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "FILE_CHUNK",
		Scope:     types.ScopeFile,
		HasScope:  true,
		Schema:    fileChunkSchema,
		Hidden:    true,
		HelpShort: "transfer one chunk of a file",
	})
}

var fileChunkSchema = &schema.Schema{
	Type: "FILE_CHUNK",
	Fields: map[string]schema.Field{
		"FROM":         {Type: schema.FieldUserID, Required: true},
		"TO":           {Type: schema.FieldUserID, Required: true},
		"FILEID":       {Type: schema.FieldMessageID, Required: true},
		"CHUNK_INDEX":  {Type: schema.FieldInt, Required: true},
		"TOTAL_CHUNKS": {Type: schema.FieldInt, Required: true},
		"CHUNK_SIZE":   {Type: schema.FieldInt, Required: true},
		"TOKEN":        {Type: schema.FieldToken, Required: true},
		"DATA":         {Type: schema.FieldString, Required: true},
	},
}

func (c *FileChunk) MessageType() string             { return "FILE_CHUNK" }
func (c *FileChunk) BearerToken() (types.Token, bool) { return c.Token, true }
func (c *FileChunk) CorrelationID() types.MessageID   { return c.FileID }
func (c *FileChunk) Info(verbose bool) string         { return "" }

func (c *FileChunk) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "FILE_CHUNK")
	f.Set("FROM", c.From.String())
	f.Set("TO", c.To.String())
	f.Set("FILEID", string(c.FileID))
	f.Set("CHUNK_INDEX", itoa(c.ChunkIndex))
	f.Set("TOTAL_CHUNKS", itoa(c.TotalChunks))
	f.Set("CHUNK_SIZE", itoa(c.ChunkSize))
	f.Set("TOKEN", c.Token.String())
	f.Set("DATA", c.Data)
	return f
}

func parseFileChunk(f *wire.Frame) (*FileChunk, error) {
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
	idx, err := parseIntField(f, "CHUNK_INDEX")
	if err != nil {
		return nil, err
	}
	total, err := parseIntField(f, "TOTAL_CHUNKS")
	if err != nil {
		return nil, err
	}
	size, err := parseIntField(f, "CHUNK_SIZE")
	if err != nil {
		return nil, err
	}
	tok, err := parseTokenField(f, "TOKEN")
	if err != nil {
		return nil, err
	}
	data, ok := f.Get("DATA")
	if !ok {
		return nil, errMissing("DATA")
	}
	return &FileChunk{From: from, To: to, FileID: fileID, ChunkIndex: idx, TotalChunks: total, ChunkSize: size, Token: tok, Data: data}, nil
}

// SendFileChunks streams the declared chunkSize slices of data to to,
// one FILE_CHUNK datagram per slice (spec.md §4.8: streamed unreliably
// after the FILE_OFFER's first ACK; completion is confirmed instead by
// the receiver's FILE_RECEIVED).
func SendFileChunks(ctx *Context, to types.UserID, fileID types.MessageID, data []byte, chunkSize int, validFor types.TTL) error {
	total := (len(data) + chunkSize - 1) / chunkSize
	if total == 0 {
		total = 1
	}
	now := types.Now()
	tok := types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeFile}

	for i := 0; i < total; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		c := &FileChunk{
			From: ctx.Self, To: to, FileID: fileID, ChunkIndex: i, TotalChunks: total,
			ChunkSize: chunkSize, Token: tok, Data: base64.StdEncoding.EncodeToString(data[start:end]),
		}
		if err := ctx.Send.SendTo(to.IP, c.ToFrame()); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveFileChunk pushes the chunk into file-transfer state; on
// completion it emits FILE_RECEIVED back to the sender.
func ReceiveFileChunk(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	c, err := parseFileChunk(f)
	if err != nil {
		return nil, err
	}
	if err := c.Token.Validate(c.From, types.ScopeFile); err != nil {
		return nil, err
	}
	if !c.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}

	complete, err := ctx.Files.AddChunk(string(c.FileID), c.ChunkIndex, c.TotalChunks, c.Data)
	if err != nil {
		return nil, err
	}
	if complete {
		r := &FileReceived{From: ctx.Self, To: c.From, FileID: c.FileID, Status: "OK", Timestamp: types.Now()}
		if err := ctx.Send.SendTo(c.From.IP, r.ToFrame()); err != nil {
			return c, err
		}
	}
	return c, nil
}

func itoa(n int) string { return itoa64(int64(n)) }
