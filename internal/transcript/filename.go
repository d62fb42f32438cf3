package transcript

import (
	"path/filepath"
	"strings"
)

// Origin is what a transcript's file name says about its conversation.
type Origin struct {
	Channel    string
	TargetNick string
	Network    string
}

// OriginFromPath derives channel, DM target and network from a file name of the form
// <name>.<network>.log or <name>.log. A leading # or @ marks a channel; a numeric
// suffix is part of the name, not a network.
//
//	#Dewland.EFnet.log  -> channel #Dewland, network EFnet
//	cancer.DSMnet.log   -> target cancer, network DSMnet
//	#1009689464.log     -> channel #1009689464
func OriginFromPath(path string) Origin {
	base := fileStem(path)
	isChannel := strings.HasPrefix(base, "#") || strings.HasPrefix(base, "@")

	name, network := base, ""
	if i := strings.LastIndex(base, "."); i >= 0 && !isDigits(base[i+1:]) {
		name, network = base[:i], base[i+1:]
	}

	if isChannel {
		return Origin{Channel: name, Network: network}
	}
	return Origin{TargetNick: name, Network: network}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
