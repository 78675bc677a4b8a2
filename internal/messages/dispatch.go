package messages

import (
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// Dispatch routes an already schema-validated frame to the Receive
// implementation for its TYPE, applying that handler's side effects.
// Unknown types return ErrUnknownType so the caller (internal/router)
// can log-and-drop per spec.md §4.8's failure policy.
func Dispatch(ctx *Context, typ string, f *wire.Frame) (types.RecentMessage, error) {
	switch typ {
	case "PING":
		return ReceivePing(ctx, f)
	case "PROFILE":
		return ReceiveProfile(ctx, f)
	case "DM":
		return ReceiveDM(ctx, f)
	case "POST":
		return ReceivePost(ctx, f)
	case "LIKE":
		return ReceiveLike(ctx, f)
	case "FOLLOW":
		return ReceiveFollow(ctx, f)
	case "UNFOLLOW":
		return ReceiveUnfollow(ctx, f)
	case "ACK":
		return ReceiveAck(ctx, f)
	case "REVOKE":
		return ReceiveRevoke(ctx, f)
	case "FILE_OFFER":
		return ReceiveFileOffer(ctx, f)
	case "FILE_CHUNK":
		return ReceiveFileChunk(ctx, f)
	case "FILE_RECEIVED":
		return ReceiveFileReceived(ctx, f)
	case "GROUP_CREATE":
		return ReceiveGroupCreate(ctx, f)
	case "GROUP_UPDATE":
		return ReceiveGroupUpdate(ctx, f)
	case "GROUP_MESSAGE":
		return ReceiveGroupMessage(ctx, f)
	case "TICTACTOE_INVITE":
		return ReceiveTicTacToeInvite(ctx, f)
	case "TICTACTOE_MOVE":
		return ReceiveTicTacToeMove(ctx, f)
	case "TICTACTOE_RESULT":
		return ReceiveTicTacToeResult(ctx, f)
	default:
		return nil, ErrUnknownType
	}
}
