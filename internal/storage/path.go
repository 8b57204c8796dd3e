package storage

import (
	"fmt"
	"path"
	"strings"
)

// AttachmentPath arma la ruta de un adjunto, con namespace por dueño y thread.
func AttachmentPath(ownerID, threadID, fileID, fileName string) string {
	name := fmt.Sprintf("%s_%s", fileID, sanitizeName(fileName))
	if threadID != "" {
		return path.Join("users", ownerID, "threads", threadID, name)
	}
	return path.Join("users", ownerID, "files", name)
}

// ThreadPrefix es el prefijo de todos los adjuntos de un thread.
func ThreadPrefix(ownerID, threadID string) string {
	return path.Join("users", ownerID, "threads", threadID) + "/"
}

// OwnedBy indica si la ruta cae dentro del namespace del usuario.
func OwnedBy(objectPath, ownerID string) bool {
	if ownerID == "" {
		return false
	}
	clean := path.Clean("/" + objectPath)
	return strings.HasPrefix(clean, "/users/"+ownerID+"/")
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
