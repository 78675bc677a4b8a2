package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/lsnp/lsnp/internal/game"
	"github.com/lsnp/lsnp/internal/messages"
	"github.com/lsnp/lsnp/internal/router"
	"github.com/lsnp/lsnp/internal/types"
)

const defaultTTL = types.TTL(3600)

// runRepl drives the interactive command loop, grounded on the
// teacher's cliLocal: read a line, trim it, skip blanks, record it in
// history, hand it to the dispatcher, and keep going until the user
// quits or aborts the prompt.
func runRepl(input *liner.State, ctx *messages.Context) {
	input.SetCtrlCAborts(true)

	for {
		line, err := input.Prompt(prompt(ctx))
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input.AppendHistory(line)

		if exit := dispatchLine(ctx, line); exit {
			return
		}
	}
}

func prompt(ctx *messages.Context) string {
	return ctx.Self.Username + "> "
}

// dispatchLine executes one REPL command. It reports whether the REPL
// should exit.
func dispatchLine(ctx *messages.Context, line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		cmdHelp(args)
	case "cls", "clear":
		fmt.Print("\033[H\033[2J")
	case "verbose":
		cmdVerbose(args)
	case "info":
		cmdInfo(ctx)
	case "recent":
		cmdRecent(ctx, args)
	case "log":
		cmdLog()
	case "dm":
		cmdDM(ctx, args)
	case "post":
		cmdPost(ctx, args)
	case "like":
		cmdLike(ctx, args, messages.ActionLike)
	case "unlike":
		cmdLike(ctx, args, messages.ActionUnlike)
	case "follow":
		cmdFollow(ctx, args, true)
	case "unfollow":
		cmdFollow(ctx, args, false)
	case "profile":
		cmdProfile(ctx, args)
	case "revoke":
		cmdRevoke(ctx, args)
	case "sendfile":
		cmdSendFile(ctx, args)
	case "accept":
		cmdAcceptFile(ctx, args)
	case "reject":
		cmdRejectFile(ctx, args)
	case "pending":
		cmdPendingFiles(ctx)
	case "group-create":
		cmdGroupCreate(ctx, args)
	case "group-update":
		cmdGroupUpdate(ctx, args)
	case "group-post":
		cmdGroupPost(ctx, args)
	case "tictactoe-invite":
		cmdTicTacToeInvite(ctx, args)
	case "tictactoe-move":
		cmdTicTacToeMove(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "lsnp: unknown command %q; try \"help\"\n", cmd)
	}
	return false
}

func cmdHelp(args []string) {
	if len(args) == 1 {
		if text, ok := router.HelpFor(strings.ToUpper(args[0])); ok {
			fmt.Println(text)
			return
		}
		fmt.Printf("lsnp: no help for %q\n", args[0])
		return
	}

	fmt.Println("local commands: dm, post, like, unlike, follow, unfollow, profile,")
	fmt.Println("  revoke, sendfile, accept, reject, pending, group-create,")
	fmt.Println("  group-update, group-post, tictactoe-invite, tictactoe-move,")
	fmt.Println("  info, recent, log, verbose, cls, help, exit")
	fmt.Println("wire message types (help TYPE for details):")
	cmds := router.Commands()
	sort.Strings(cmds)
	for _, c := range cmds {
		fmt.Println("  " + c)
	}
}

func cmdVerbose(args []string) {
	// toggling affects the "stderr" sink registered in main; kept local
	// to avoid internal/lsnplog depending on cmd/lsnp.
	if len(args) == 0 {
		fmt.Println("usage: verbose <on|off>")
		return
	}
	setVerbose(args[0] == "on")
}

func cmdLog() {
	for _, line := range logRing.Dump() {
		if line != "" {
			fmt.Println(line)
		}
	}
}

func cmdInfo(ctx *messages.Context) {
	fmt.Printf("self: %s\n", ctx.Self.String())
	peers := ctx.State.GetPeers()
	fmt.Printf("peers known: %d\n", len(peers))
	for _, p := range peers {
		name, _ := ctx.State.GetPeerDisplayName(p)
		if name == "" {
			name = p.Username
		}
		fmt.Printf("  %s (%s)\n", p.String(), name)
	}
	fmt.Printf("following: %d, followers: %d\n", len(ctx.State.GetFollowing()), len(ctx.State.GetFollowers()))
	fmt.Printf("active games: %d\n", ctx.Games.ActiveCount())
}

func cmdRecent(ctx *messages.Context, args []string) {
	verbose := len(args) > 0 && args[0] == "-v"
	for _, m := range ctx.State.GetRecentMessagesReceived() {
		fmt.Printf("[%s] %s\n", m.MessageType(), m.Info(verbose))
	}
}

func cmdDM(ctx *messages.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: dm <user@ip> <message...>")
		return
	}
	to, err := types.ParseUserID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	if _, err := messages.SendDM(ctx, to, strings.Join(args[1:], " "), defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: dm: %v\n", err)
	}
}

func cmdPost(ctx *messages.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: post <message...>")
		return
	}
	if _, err := messages.SendPost(ctx, strings.Join(args, " "), defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: post: %v\n", err)
	}
}

func cmdLike(ctx *messages.Context, args []string, action messages.LikeAction) {
	if len(args) < 2 {
		fmt.Println("usage: like|unlike <user@ip> <post-timestamp>")
		return
	}
	to, err := types.ParseUserID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	ts, err := types.ParseTimestamp(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	if _, err := messages.SendLike(ctx, to, ts, action, defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: like: %v\n", err)
	}
}

func cmdFollow(ctx *messages.Context, args []string, follow bool) {
	if len(args) < 1 {
		fmt.Println("usage: follow|unfollow <user@ip>")
		return
	}
	to, err := types.ParseUserID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	var sendErr error
	if follow {
		_, sendErr = messages.SendFollow(ctx, to, defaultTTL)
	} else {
		_, sendErr = messages.SendUnfollow(ctx, to, defaultTTL)
	}
	if sendErr != nil {
		fmt.Fprintf(os.Stderr, "lsnp: follow: %v\n", sendErr)
	}
}

func cmdProfile(ctx *messages.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: profile <display-name> [status...]")
		return
	}
	status := ""
	if len(args) > 1 {
		status = strings.Join(args[1:], " ")
	}
	if err := messages.SendProfile(ctx, args[0], status); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: profile: %v\n", err)
	}
}

func cmdRevoke(ctx *messages.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: revoke <token>")
		return
	}
	tok, err := types.ParseToken(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	if err := messages.SendRevoke(ctx, tok); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: revoke: %v\n", err)
	}
}

func cmdSendFile(ctx *messages.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: sendfile <user@ip> <path> [description...]")
		return
	}
	to, err := types.ParseUserID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	desc := ""
	if len(args) > 2 {
		desc = strings.Join(args[2:], " ")
	}
	filename := filepath.Base(args[1])
	offer, err := messages.SendFileOffer(ctx, to, filename, "application/octet-stream", desc, int64(len(data)), defaultTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: sendfile: %v\n", err)
		return
	}
	if err := messages.SendFileChunks(ctx, to, offer.FileID, data, fileChunkSize, defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: sendfile: %v\n", err)
	}
}

const fileChunkSize = 1024

func cmdAcceptFile(ctx *messages.Context, args []string) {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	if err := ctx.Files.AcceptFile(id); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: accept: %v\n", err)
	}
}

func cmdRejectFile(ctx *messages.Context, args []string) {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	ctx.Files.RejectFile(id)
}

func cmdPendingFiles(ctx *messages.Context) {
	for _, id := range ctx.Files.Pending() {
		fmt.Println(id)
	}
}

func cmdGroupCreate(ctx *messages.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("usage: group-create <group-id> <group-name> <member@ip>...")
		return
	}
	members := make([]types.UserID, 0, len(args)-2)
	for _, a := range args[2:] {
		u, err := types.ParseUserID(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
			return
		}
		members = append(members, u)
	}
	if _, err := messages.SendGroupCreate(ctx, args[0], args[1], members, defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: group-create: %v\n", err)
	}
}

func cmdGroupUpdate(ctx *messages.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: group-update <group-id> [+member@ip|-member@ip]...")
		return
	}
	var add, remove []types.UserID
	for _, a := range args[1:] {
		if len(a) < 2 {
			continue
		}
		u, err := types.ParseUserID(a[1:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
			return
		}
		switch a[0] {
		case '+':
			add = append(add, u)
		case '-':
			remove = append(remove, u)
		}
	}
	if _, err := messages.SendGroupUpdate(ctx, args[0], add, remove, defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: group-update: %v\n", err)
	}
}

func cmdGroupPost(ctx *messages.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: group-post <group-id> <message...>")
		return
	}
	if _, err := messages.SendGroupMessage(ctx, args[0], strings.Join(args[1:], " "), defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: group-post: %v\n", err)
	}
}

func cmdTicTacToeInvite(ctx *messages.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: tictactoe-invite <user@ip> <game-id> [X|O]")
		return
	}
	to, err := types.ParseUserID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	symbol := game.X
	if len(args) > 2 && strings.EqualFold(args[2], "O") {
		symbol = game.O
	}
	if _, err := messages.SendTicTacToeInvite(ctx, to, args[1], symbol, defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: tictactoe-invite: %v\n", err)
	}
}

func cmdTicTacToeMove(ctx *messages.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("usage: tictactoe-move <user@ip> <game-id> <position 0-8>")
		return
	}
	to, err := types.ParseUserID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: %v\n", err)
		return
	}
	pos, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: position must be an integer\n")
		return
	}
	if _, err := messages.SendTicTacToeMove(ctx, to, args[1], pos, defaultTTL); err != nil {
		fmt.Fprintf(os.Stderr, "lsnp: tictactoe-move: %v\n", err)
	}
}
