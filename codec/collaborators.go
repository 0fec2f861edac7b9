package codec

import (
	"io"

	"github.com/coreproto/tl/tl"
)

// UploadResolver synthesizes an InputFile param during serialize (spec §6
// "Consumed from upload... collaborators during serialize to synthesize
// InputFile... arguments"). The host wires an uploader that has already
// staged the file and knows its input-file descriptor.
type UploadResolver interface {
	ResolveInputFile(methodName, paramName string) (tl.Value, error)
}

// EncryptedChatInfoResolver synthesizes an InputEncryptedChat param.
type EncryptedChatInfoResolver interface {
	ResolveInputEncryptedChat(methodName, paramName string) (tl.Value, error)
}

// SecretChatEncryptor synthesizes the encrypted `data` param of a
// secret-chat method (spec §6 "secret-chat data"; implemented by the
// secretchat package).
type SecretChatEncryptor interface {
	ResolveSecretData(methodName string) (tl.Value, error)
}

// OutgoingMessageRef is the subset of the session layer's OutgoingMessage
// the deserializer needs to resolve an rpc_result's expected type (spec §6
// "a lookup outgoing_messages[msg_id] -> OutgoingMessage exposing
// getConstructor() and getType()").
type OutgoingMessageRef interface {
	Constructor() string
	Type() string
}

// OutgoingLookup is the pending-table collaborator consulted when decoding
// rpc_result.
type OutgoingLookup interface {
	Lookup(msgID int64) (OutgoingMessageRef, bool)
}

// Collaborators groups every external interface the codec consults; all
// fields are optional except Rand, which New defaults to
// crypto/rand.Reader.
type Collaborators struct {
	Rand              io.Reader
	Secret            SecretChatEncryptor
	Upload            UploadResolver
	EncryptedChatInfo EncryptedChatInfoResolver
	Outgoing          OutgoingLookup
}
