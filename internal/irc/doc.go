/*
Package irc is a small IRC client core: it registers with a server, reads the
line protocol, classifies each line into an Event and hands events to a Handler.

The implementation is split across:
  - client.go: connection lifecycle, registration, startup and reconnects
  - event.go: tokenizer, sender parser and classifier
  - dispatch.go: handler and command routing
  - writer.go, throttle.go: outbound lines and flood control

Event Summary:

Protocol reactions (handled by the client itself):
  - PING: answered with PONG <token>
  - 376/422: end of MOTD / MOTD missing - registration is complete
  - Identifies to NickServ (REGISTER, IDENTIFY)
  - Joins every configured channel
  - Calls Handler.DidStartUp
  - KICK of the bot: rejoins the channel when auto_rejoin is set

Messages:
  - PRIVMSG to the bot's nick: Handler.PrivateMessage
  - PRIVMSG to a channel containing the bot's nick: Handler.MentionsMe
  - other channel PRIVMSG: Handler.ChannelMessage
  - "!name args" text: the command registered as name, falling back to the
    message callbacks above when no such command exists

Membership:
  - JOIN: Handler.Joined (not for the bot itself)
  - PART: Handler.Part
  - QUIT: Handler.Quit
  - KICK: Handler.Kick
  - MODE: Handler.Mode

Everything else is ignored.
*/
package irc
