package pkgbuild

import "github.com/ochairo/pkgbump/internal/domain/entities"

const cursorRecipe = `# Maintainer: Jane Doe <jane@example.com>
pkgname=cursor-bin
pkgver=0.47.3
pkgrel=2
pkgdesc="AI-first code editor"
arch=('x86_64')
url="https://www.cursor.com"
license=('LicenseRef-Cursor_EULA')
depends=('fuse2' 'gtk3')
options=('!strip')
_appimage="${pkgname}-${pkgver}.AppImage"
source_x86_64=("${_appimage}::https://downloads.example.com/cursor-0.47.3-x86_64.AppImage" "cursor.png" "${pkgname}.desktop.in" "${pkgname}.sh")
noextract=("${_appimage}")
sha512sums_x86_64=('1111aaaa'
                   '2222bbbb'
                   '3333cccc'
                   '4444dddd')

package() {
    install -Dm755 "${srcdir}/${_appimage}" "${pkgdir}/opt/${pkgname}/${pkgname}.AppImage"
    install -Dm644 "${srcdir}/cursor.png" "${pkgdir}/usr/share/pixmaps/cursor.png"
}
`

func cursorFields() entities.RecipeFields {
	return entities.DefaultRecipeFields()
}
