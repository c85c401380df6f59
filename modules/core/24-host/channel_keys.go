package host

import "fmt"

const (
	KeyConnectionPrefix = "connections"
	KeyChannelEndPrefix = "channelEnds"
	KeyPortPrefix       = "ports"
	KeyChannelPrefix    = "channels"
)

// ConnectionPath is the path of a connection end: "connections/{connectionID}".
func ConnectionPath(connectionID string) string {
	return fmt.Sprintf("%s/%s", KeyConnectionPrefix, connectionID)
}

// ChannelPath is the path of a channel end: "channelEnds/ports/{portID}/channels/{channelID}".
func ChannelPath(portID, channelID string) string {
	return fmt.Sprintf("%s/%s", KeyChannelEndPrefix, channelPath(portID, channelID))
}

func channelPath(portID, channelID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", KeyPortPrefix, portID, KeyChannelPrefix, channelID)
}
