package ssh

import "os"

func fileMode(mode uint32) os.FileMode {
	return os.FileMode(mode)
}
