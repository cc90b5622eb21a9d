package form

// NoticeKind selects how a notice is presented.
type NoticeKind string

const (
	// Toast notices are transient and dismiss themselves.
	Toast NoticeKind = "toast"
	// Blocking notices must be acknowledged before continuing.
	Blocking NoticeKind = "blocking"
)

// Notice is a user-facing message produced by a form action.
type Notice struct {
	Key     string     `json:"key"`
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Error   bool       `json:"error,omitempty"`
}

// IsZero reports whether n carries no message.
func (n Notice) IsZero() bool { return n.Key == "" }

var (
	NoticeSaved = Notice{
		Key: "saved", Kind: Toast,
		Title: "Letter Saved! 💌", Message: "Your birthday message has been saved successfully.",
	}
	NoticeDeleted = Notice{
		Key: "deleted", Kind: Toast,
		Title: "Letter Deleted", Message: "The letter has been removed.",
	}
	NoticeMissingFields = Notice{
		Key: "validation", Kind: Blocking,
		Title: "Missing fields", Message: "Please fill in all fields before saving.", Error: true,
	}
	NoticeSaveFailed = Notice{
		Key: "storage_error", Kind: Toast,
		Title: "Letter Not Saved", Message: "Your letter could not be stored. Please try again.", Error: true,
	}
	NoticeDeleteFailed = Notice{
		Key: "delete_error", Kind: Toast,
		Title: "Letter Not Deleted", Message: "The letter could not be removed. Please try again.", Error: true,
	}
	NoticeNotFound = Notice{
		Key: "not_found", Kind: Toast,
		Title: "Letter Not Found", Message: "That letter no longer exists.", Error: true,
	}
)

var noticesByKey = map[string]Notice{}

func init() {
	for _, n := range []Notice{
		NoticeSaved, NoticeDeleted, NoticeMissingFields,
		NoticeSaveFailed, NoticeDeleteFailed, NoticeNotFound,
	} {
		noticesByKey[n.Key] = n
	}
}

// NoticeFor returns the catalogued notice for key.
func NoticeFor(key string) (Notice, bool) {
	n, ok := noticesByKey[key]
	return n, ok
}
