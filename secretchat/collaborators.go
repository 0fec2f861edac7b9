package secretchat

import (
	"errors"
	"sync"

	"github.com/coreproto/tl/tl"
)

// UploadStager is a minimal codec.UploadResolver: the host stages an
// already-uploaded file's InputFile descriptor before calling a method
// that references it, and the codec pulls it out when the InputFile
// param was left unset.
type UploadStager struct {
	mu      sync.Mutex
	pending map[string]tl.Value // keyed by "method.param"
}

func NewUploadStager() *UploadStager {
	return &UploadStager{pending: make(map[string]tl.Value)}
}

// Stage records the InputFile value to hand back the next time
// ResolveInputFile is called for methodName/paramName.
func (u *UploadStager) Stage(methodName, paramName string, inputFile tl.Value) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending[methodName+"."+paramName] = inputFile
}

func (u *UploadStager) ResolveInputFile(methodName, paramName string) (tl.Value, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	key := methodName + "." + paramName
	v, ok := u.pending[key]
	if !ok {
		return tl.Value{}, errors.New("secretchat: no staged upload for " + key)
	}
	delete(u.pending, key)
	return v, nil
}

// EncryptedChatDirectory is a minimal codec.EncryptedChatInfoResolver
// backed by an in-memory map from a "method.param" key to the
// InputEncryptedChat descriptor registered for it.
type EncryptedChatDirectory struct {
	mu    sync.Mutex
	byKey map[string]tl.Value
}

func NewEncryptedChatDirectory() *EncryptedChatDirectory {
	return &EncryptedChatDirectory{byKey: make(map[string]tl.Value)}
}

func (d *EncryptedChatDirectory) Register(methodName, paramName string, chat tl.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byKey[methodName+"."+paramName] = chat
}

func (d *EncryptedChatDirectory) ResolveInputEncryptedChat(methodName, paramName string) (tl.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := methodName + "." + paramName
	v, ok := d.byKey[key]
	if !ok {
		return tl.Value{}, errors.New("secretchat: no known encrypted chat for " + key)
	}
	return v, nil
}
