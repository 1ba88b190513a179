// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all packet-level audio decoders
package decode

// Decoder decodes one encoded packet into 16-bit PCM samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int16, error)

	// Close releases decoder resources
	Close() error
}
