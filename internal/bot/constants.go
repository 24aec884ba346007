package bot

const (
	CommandStart     = "start"
	CommandProducts  = "products"
	CommandRecipe    = "recipe"
	CommandBookmarks = "bookmarks"
	CommandExport    = "export"
)

// Telegram rejects longer text messages.
const maxMessageLength = 4096

const (
	msgGreeting        = "Данный бот запоминает товары и генерирует рецепт по ним.\nСписок команд:\n"
	msgProductList     = "Текущие продукты:"
	msgNoProducts      = "У вас нет товаров"
	msgNoBookmarks     = "Закладок нет"
	msgEnterProduct    = "Введите название продукта"
	msgEmptyProduct    = "Название продукта не может быть пустым. Введите название продукта"
	msgProductDeleted  = "Продукт удалён"
	msgBookmarkSaved   = "Рецепт сохранён в закладки"
	msgBookmarkDeleted = "Закладка удалена"
	msgUnknownCommand  = "Неизвестная команда"
	msgUnrecognized    = "Сообщение не распознано"
	msgTooManyRecipes  = "Слишком много запросов рецептов, попробуйте позже"
	msgExportCaption   = "Ваши закладки"
	recipePromptPrefix = "Напиши рецепт одного блюда используя только "

	msgMalformedCallback = "Не удалось обработать это действие"
	msgRecipeFailed      = "Не удалось получить рецепт, попробуйте позже"
	msgInternalError     = "Произошла ошибка, попробуйте позже"

	btnDeleteProduct  = "%s [удалить]"
	btnAddProduct     = "Добавить ещё"
	btnSaveRecipe     = "Сохранить"
	btnDeleteBookmark = "удалить"

	exportFileName = "bookmarks.xlsx"
)

type command struct {
	name        string
	description string
}

var commands = []command{
	{CommandStart, "Начало"},
	{CommandProducts, "Товары"},
	{CommandRecipe, "Получить рецепт"},
	{CommandBookmarks, "Закладки с рецептами"},
	{CommandExport, "Выгрузить закладки в Excel"},
}
