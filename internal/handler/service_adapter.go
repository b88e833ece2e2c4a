package handler

import (
	"github.com/hitoshi/bookman/internal/auth"
	"github.com/hitoshi/bookman/internal/book"
	"github.com/hitoshi/bookman/internal/collaborator"
	"github.com/hitoshi/bookman/internal/section"
	"github.com/hitoshi/bookman/internal/user"
)

// ドメインサービスはhandler側インターフェースをそのまま満たす。
// シグネチャの乖離が生じた場合はここにアダプタを追加する。

var _ AuthServiceInterface = (*auth.Service)(nil)
var _ BookServiceInterface = (*book.Service)(nil)
var _ SectionServiceInterface = (*section.Service)(nil)
var _ CollaboratorServiceInterface = (*collaborator.Service)(nil)
var _ UserServiceInterface = (*user.Service)(nil)
