package langs

import (
	"bytes"

	"github.com/nullsector/judged/pkg/log"
)

// splitCompilerLog re-emits each line of a compile step's captured
// stdout through the judger's own logger. Each line is prefixed by a
// single log-level digit the compile wrapper writes ahead of its
// message ('5' error, '4' warn, '3' info, '2' debug, anything else
// treated as debug); the prefix itself is stripped before logging.
func splitCompilerLog(languageID string, stdout []byte) {
	logger := log.WithLanguageID(languageID)
	for _, line := range bytes.Split(stdout, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		content := string(line[1:])
		switch line[0] {
		case '5':
			logger.Error().Msg(content)
		case '4':
			logger.Warn().Msg(content)
		case '3':
			logger.Info().Msg(content)
		default:
			logger.Debug().Msg(content)
		}
	}
}
