// Package protocol defines the wire protocol shared by the file transfer
// client and server.
//
// # Frame Format
//
// Every control message is a UTF-8 JSON object followed by a single
// delimiter byte (0x17):
//
//	{"action": <int>, "data": <payload|null>}<0x17>
//
// JSON encoding escapes control characters, so the delimiter byte can never
// appear unescaped inside a frame body; scanning for the delimiter is
// therefore a safe framing strategy. Status responses travel in the same
// framing: plain UTF-8 text ("OK", "CANCELED", or a free-form error string)
// followed by the delimiter.
//
// # Actions
//
// Five actions exist:
//
//	ActionEcho             payload: any JSON value, echoed back verbatim
//	ActionSetMeta          payload: {"dest_path", "hash", "size"}
//	ActionStartSend        payload: none
//	ActionClearFileInfo    payload: none
//	ActionSetFileBlockSize payload: positive integer
//
// Payloads decode into a tagged union (Action) by dispatching on the action
// number, so executors never inspect dynamic JSON values.
//
// # File Streaming
//
// After a successful StartSend the connection leaves control framing:
// subsequent bytes are raw file content until the declared size is reached.
// A transfer in progress is cancelled by sending the 4-byte cancel sentinel
// (0x18 repeated four times) at the end of a chunk.
package protocol
