// Command bot is a line-oriented chat adapter for local testing. Each stdin
// line is sent as one CMD; "@id" words become mentions and the rest are args.
//
//	> sign_in
//	> gift_gold @u2 100
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"leafgame/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		userID   = flag.String("user", "u1", "user id")
		groupID  = flag.String("group", "", "group id (empty for private chat)")
		nickname = flag.String("nick", "", "nickname")
		perm     = flag.Int("perm", 0, "permission level")
		toMe     = flag.Bool("to_me", true, "address the bot directly")
	)
	flag.Parse()

	logger := logrus.New()
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	base := protocol.CmdMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		UserID:          *userID,
		GroupID:         *groupID,
		Nickname:        *nickname,
		Permission:      *perm,
		ToMe:            *toMe,
	}

	in := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for in.Scan() {
		cmd, ok := parseLine(base, in.Text())
		if !ok {
			fmt.Print("> ")
			continue
		}
		cmd.ID = uuid.NewString()
		if err := conn.WriteJSON(cmd); err != nil {
			logger.Fatalf("send: %v", err)
		}
		var res protocol.ResultMsg
		if err := conn.ReadJSON(&res); err != nil {
			logger.Fatalf("read: %v", err)
		}
		printResult(res)
		fmt.Print("> ")
	}
}

func parseLine(base protocol.CmdMsg, line string) (protocol.CmdMsg, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return base, false
	}
	cmd := base
	cmd.Command = fields[0]
	cmd.At = nil
	cmd.Args = nil
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "@") && len(f) > 1 {
			cmd.At = append(cmd.At, f[1:])
			continue
		}
		cmd.Args = append(cmd.Args, f)
	}
	return cmd, true
}

func printResult(res protocol.ResultMsg) {
	if !res.OK {
		fmt.Printf("[%s] %s\n", res.Code, res.Text)
		return
	}
	fmt.Println(res.Text)
	if res.Data != nil {
		fmt.Printf("  data: %v\n", res.Data)
	}
}
