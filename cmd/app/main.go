package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/term"

	"memory-makers/internal/appclient"
	"memory-makers/internal/config"
	"memory-makers/internal/deeplink"
	"memory-makers/internal/session"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	store, err := session.NewSQLiteTokenStore(cfg.TokenDBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	api := appclient.New(cfg.APIBaseURL, logger)
	browser := &consoleBrowser{reader: reader}
	mgr := session.NewManager(logger, api, store, browser, cfg.AuthorizeURL, cfg.RedirectURI)

	// La suscripción a deep links se registra antes de procesar cualquier
	// URL y se cancela siempre al salir.
	source := deeplink.NewSource()
	urls, cancel := source.Subscribe()
	defer cancel()
	go func() {
		for raw := range urls {
			if mgr.HandleRedirectURL(ctx, raw) {
				fmt.Println("\nSesión establecida desde el callback.")
			}
		}
	}()

	mgr.Initialize(ctx)

	// URL de arranque: el proceso pudo lanzarse desde un deep link.
	if len(os.Args) > 1 {
		mgr.HandleRedirectURL(ctx, os.Args[1])
	}

	for {
		state := mgr.Snapshot()
		if state.User == nil {
			if !authMenu(ctx, reader, mgr, source) {
				return
			}
		} else {
			if !homeMenu(ctx, reader, mgr, api) {
				return
			}
		}
	}
}

func authMenu(ctx context.Context, reader *bufio.Reader, mgr *session.Manager, source *deeplink.Source) bool {
	fmt.Println("\n===== Memory Makers =====")
	fmt.Println("[1] Iniciar sesión")
	fmt.Println("[2] Registrarse")
	fmt.Println("[3] Login con navegador")
	fmt.Println("[4] Pegar URL de callback")
	fmt.Println("[5] Salir")
	fmt.Print("Selecciona una opción: ")

	switch readLine(reader) {
	case "1":
		email := prompt(reader, "Email: ")
		password := readPassword("Password: ")
		if _, err := mgr.LoginWithCredentials(ctx, email, password); err != nil {
			showError(err)
		} else {
			fmt.Println("Sesión iniciada.")
		}
	case "2":
		name := prompt(reader, "Nombre: ")
		email := prompt(reader, "Email: ")
		password := readPassword("Password (mínimo 6 caracteres): ")
		if _, err := mgr.Register(ctx, email, password, name); err != nil {
			showError(err)
		} else {
			fmt.Println("Cuenta creada.")
		}
	case "3":
		established, err := mgr.LoginWithBrowser(ctx)
		if err != nil {
			showError(err)
		} else if !established {
			fmt.Println("Login no completado.")
		}
	case "4":
		raw := prompt(reader, "URL de callback: ")
		if raw != "" {
			source.Emit(raw)
		}
	case "5":
		return false
	default:
		fmt.Println("Opción inválida.")
	}
	return true
}

func homeMenu(ctx context.Context, reader *bufio.Reader, mgr *session.Manager, api *appclient.Client) bool {
	state := mgr.Snapshot()
	user := state.User
	token := state.SessionToken

	fmt.Printf("\n--- Hola, %s ---\n", user.Name)
	fmt.Printf("Tu código de pareja: %s\n", user.FriendCode)
	if user.Paired() {
		fmt.Println("Estado: vinculado con tu pareja.")
	} else {
		fmt.Println("Estado: sin pareja vinculada.")
	}
	fmt.Println("[1] Ver lista de deseos")
	fmt.Println("[2] Agregar item")
	fmt.Println("[3] Completar item con foto")
	fmt.Println("[4] Eliminar item")
	fmt.Println("[5] Galería de completados")
	fmt.Println("[6] Vincular pareja")
	fmt.Println("[7] Refrescar perfil")
	fmt.Println("[8] Cerrar sesión")
	fmt.Println("[9] Salir")
	fmt.Print("Selecciona una opción: ")

	switch readLine(reader) {
	case "1":
		listBucket(ctx, api, token)
	case "2":
		title := prompt(reader, "Título: ")
		category := prompt(reader, "Categoría: ")
		if _, err := api.CreateBucketItem(ctx, token, title, category); err != nil {
			showError(err)
		} else {
			fmt.Println("Item agregado.")
		}
	case "3":
		completeFlow(ctx, reader, api, token)
	case "4":
		itemID := prompt(reader, "ID del item: ")
		if err := api.DeleteBucketItem(ctx, token, itemID); err != nil {
			showError(err)
		} else {
			fmt.Println("Item eliminado.")
		}
	case "5":
		listCompleted(ctx, api, token)
	case "6":
		code := prompt(reader, "Código de tu pareja: ")
		res, err := api.ConnectFriend(ctx, token, code)
		if err != nil {
			showError(err)
		} else {
			fmt.Printf("%s Pareja: %s\n", res.Message, res.Partner.Name)
			mgr.RefreshUser(ctx)
		}
	case "7":
		mgr.RefreshUser(ctx)
	case "8":
		mgr.Logout(ctx)
		fmt.Println("Sesión cerrada.")
	case "9":
		return false
	default:
		fmt.Println("Opción inválida.")
	}
	return true
}

func listBucket(ctx context.Context, api *appclient.Client, token string) {
	items, err := api.BucketList(ctx, token)
	if err != nil {
		showError(err)
		return
	}
	if len(items) == 0 {
		fmt.Println("La lista está vacía.")
		return
	}
	for i, item := range items {
		fmt.Printf("[%d] %s (%s) — ID: %s\n", i+1, item.Title, item.Category, item.ItemID)
	}
}

func completeFlow(ctx context.Context, reader *bufio.Reader, api *appclient.Client, token string) {
	itemID := prompt(reader, "ID del item: ")
	photoPath := prompt(reader, "Ruta de la foto: ")
	notes := prompt(reader, "Notas (opcional): ")

	photo, err := os.ReadFile(photoPath)
	if err != nil {
		fmt.Printf("No se pudo leer la foto: %v\n", err)
		return
	}

	encoded := base64.StdEncoding.EncodeToString(photo)
	completed, err := api.CompleteBucketItem(ctx, token, itemID, encoded, notes)
	if err != nil {
		showError(err)
		return
	}
	fmt.Printf("¡Cumplido! %s (%s)\n", completed.Title, completed.CompletedAt.Format("2006-01-02"))
}

func listCompleted(ctx context.Context, api *appclient.Client, token string) {
	items, err := api.CompletedItems(ctx, token)
	if err != nil {
		showError(err)
		return
	}
	if len(items) == 0 {
		fmt.Println("Todavía no hay recuerdos completados.")
		return
	}
	for i, item := range items {
		notes := ""
		if item.Notes != nil {
			notes = " — " + *item.Notes
		}
		fmt.Printf("[%d] %s (%s) %s%s\n", i+1, item.Title, item.Category,
			item.CompletedAt.Format("2006-01-02"), notes)
	}
}

// consoleBrowser es la sesión de navegador administrada del cliente de
// terminal: muestra la URL de autorización y espera la URL de callback
// pegada por el usuario. Una línea vacía cuenta como cancelación.
type consoleBrowser struct {
	reader *bufio.Reader
}

func (b *consoleBrowser) OpenAuthSession(_ context.Context, authURL string) (string, error) {
	fmt.Println("Abrí esta URL en tu navegador:")
	fmt.Println("  " + authURL)
	fmt.Print("Pegá la URL de callback (vacío para cancelar): ")
	line, err := b.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", session.ErrLoginCancelled
	}
	return line, nil
}

func showError(err error) {
	var apiErr *appclient.APIError
	if errors.As(err, &apiErr) {
		fmt.Printf("Error: %s\n", apiErr.Detail)
		return
	}
	if errors.Is(err, session.ErrPasswordTooShort) {
		fmt.Println("Error: la contraseña debe tener al menos 6 caracteres.")
		return
	}
	fmt.Println("Algo salió mal. Intentá de nuevo.")
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	return readLine(reader)
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(label string) string {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
